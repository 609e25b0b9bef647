package tasks_test

import "fmt"

func stringify(v any) string { return fmt.Sprintf("%v", v) }
