package domain

type Role string

const (
	RoleOperator Role = "operator" // 可以提交和取消排课任务
	RoleViewer   Role = "viewer"   // 只能查看任务和结果
)
