package seed

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmate129/timetable-ga/internal/dataset"
	"github.com/kmate129/timetable-ga/internal/domain"
)

func TestBackendIDFromChineseName(t *testing.T) {
	assert.Equal(t, "zhangwei03", BackendIDFromChineseName("张伟", 3))
	assert.Equal(t, "lijie12", BackendIDFromChineseName("李杰", 12))
}

func TestGenerateRandomChineseName(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		name := []rune(GenerateRandomChineseName(rng))
		assert.GreaterOrEqual(t, len(name), 2)
		assert.LessOrEqual(t, len(name), 3)
	}
}

func TestGenerateRandomDatasetBuilds(t *testing.T) {
	opts := DefaultOptions()
	f, err := GenerateRandomDataset(rand.New(rand.NewPCG(7, 7)), opts)
	require.NoError(t, err)

	assert.Len(t, f.Teachers, opts.Teachers)
	assert.Len(t, f.Classrooms, opts.Classrooms)
	assert.Len(t, f.Classes, opts.Classes)

	catalog, err := dataset.Build(f, &domain.IDGenerator{})
	require.NoError(t, err)

	inst, err := catalog.Instance(5, 12)
	require.NoError(t, err)
	assert.Equal(t, opts.Classes, len(inst.CourseClasses()))

	labs := 0
	for _, r := range f.Classrooms {
		if r.Lab {
			labs++
		}
	}
	assert.Equal(t, opts.Labs, labs)

	for _, cc := range catalog.Classes {
		assert.LessOrEqual(t, cc.Duration, opts.MaxDuration)
		assert.LessOrEqual(t, len(cc.Groups), opts.MaxGroupsPerCC)
		for _, r := range catalog.Classrooms {
			assert.GreaterOrEqual(t, r.Seats, cc.RequiredSeats)
		}
	}
}

func TestGenerateRandomDatasetIsDeterministic(t *testing.T) {
	first, err := GenerateRandomDataset(rand.New(rand.NewPCG(3, 4)), DefaultOptions())
	require.NoError(t, err)
	second, err := GenerateRandomDataset(rand.New(rand.NewPCG(3, 4)), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateRandomDatasetRejectsBadOptions(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))

	opts := DefaultOptions()
	opts.Teachers = 0
	_, err := GenerateRandomDataset(rng, opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Labs = opts.Classrooms + 1
	_, err = GenerateRandomDataset(rng, opts)
	assert.Error(t, err)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.TrimSpace(content)+"\n"), 0o644))
	}
	return dir
}

func validCSV() map[string]string {
	return map[string]string{
		"teachers.csv": `
id,name,lunch_break
zhangwei00,张伟,true
lijie01,李杰,`,
		"courses.csv": `
id,name
math,高等数学`,
		"groups.csv": `
id,name,size
g1,1班,30
g2,2班,25`,
		"classrooms.csv": `
id,name,size,lab
r101,101,80,false
lab1,实验室,40,true`,
		"classes.csv": `
id,teacher,course,groups,lab,duration
cc1,zhangwei00,math,g1;g2,,2
cc2,lijie01,math,g2,true,`,
	}
}

func TestImportCSV(t *testing.T) {
	dir := writeFiles(t, validCSV())

	f, err := ImportCSV(dir)
	require.NoError(t, err)

	require.Len(t, f.Teachers, 2)
	assert.True(t, f.Teachers[0].LunchBreakNeeded)
	assert.False(t, f.Teachers[1].LunchBreakNeeded)

	require.Len(t, f.Classrooms, 2)
	assert.True(t, f.Classrooms[1].Lab)
	assert.Equal(t, 80, f.Classrooms[0].Size)

	require.Len(t, f.Classes, 2)
	assert.Equal(t, []string{"g1", "g2"}, f.Classes[0].Groups)
	assert.Equal(t, 2, f.Classes[0].Duration)
	assert.True(t, f.Classes[1].Lab)
	assert.Equal(t, 0, f.Classes[1].Duration)

	catalog, err := dataset.Build(f, &domain.IDGenerator{})
	require.NoError(t, err)
	assert.Equal(t, 55, catalog.Classes[0].RequiredSeats)
	assert.Equal(t, 1, catalog.Classes[1].Duration)
}

func TestImportCSVErrors(t *testing.T) {
	files := validCSV()
	files["groups.csv"] = "id,name\ng1,1班"
	_, err := ImportCSV(writeFiles(t, files))
	assert.ErrorContains(t, err, "size")

	files = validCSV()
	files["groups.csv"] = "id,name,size\ng1,1班,thirty"
	_, err = ImportCSV(writeFiles(t, files))
	assert.ErrorContains(t, err, "thirty")

	files = validCSV()
	delete(files, "classes.csv")
	_, err = ImportCSV(writeFiles(t, files))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBundledDataMatches(t *testing.T) {
	fromCSV, err := ImportCSV(filepath.Join("..", "..", "data", "csv"))
	require.NoError(t, err)

	dummy, err := dataset.LoadFile(filepath.Join("..", "..", "data", "dummy.json"))
	require.NoError(t, err)

	assert.Equal(t, dummy, fromCSV)

	catalog, err := dataset.Build(dummy, &domain.IDGenerator{})
	require.NoError(t, err)
	_, err = catalog.Instance(5, 12)
	require.NoError(t, err)
}
