package devicedata

// SortDirection orders raw series samples by timestamp.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection validates a sort direction string.
func ParseSortDirection(value string) (SortDirection, bool) {
	switch SortDirection(value) {
	case SortAsc, SortDesc:
		return SortDirection(value), true
	default:
		return "", false
	}
}
