package vmem

// RoundUp rounds n up to a multiple of the page size.
func RoundUp(n int) int {
	ps := PageSize()
	return (n + ps - 1) / ps * ps
}
