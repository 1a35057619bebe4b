package models

// TodoStats summarizes a set of todos.
type TodoStats struct {
	Total      int64              `json:"total"`
	Completed  int64              `json:"completed"`
	Pending    int64              `json:"pending"`
	ByPriority map[Priority]int64 `json:"by_priority"`
}

// UserStats summarizes the user table.
type UserStats struct {
	Total    int64          `json:"total"`
	Active   int64          `json:"active"`
	Verified int64          `json:"verified"`
	ByRole   map[Role]int64 `json:"by_role"`
}
