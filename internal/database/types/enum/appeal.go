package enum

// AppealStatus represents the status of an appeal.
//
//go:generate go tool enumer -type=AppealStatus -trimprefix=AppealStatus
type AppealStatus int

const (
	AppealStatusPending AppealStatus = iota
	AppealStatusAccepted
	AppealStatusRejected
)

// IsResolved reports whether staff already responded to the appeal.
func (a AppealStatus) IsResolved() bool {
	return a == AppealStatusAccepted || a == AppealStatusRejected
}
