package canteen

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true},
	StatusReady:     {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

// forward = jalur maju tanpa cancel, dipakai Advance.
var forward = map[Status]Status{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusCompleted,
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Next: state berikutnya pada jalur maju. ok=false utk state terminal.
func Next(s Status) (Status, bool) {
	n, ok := forward[s]
	return n, ok
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanCancel: buyer/seller hanya boleh batalkan sebelum dapur mulai masak.
func CanCancel(s Status) bool {
	return s == StatusPending || s == StatusConfirmed
}
