package canteen

import "time"

// Estimasi waktu tunggu murni dari isi order; tidak ada input beban dapur.
const (
	BaseWaitMinutes    = 10
	PerItemWaitMinutes = 3
)

type WaitClass string

const (
	WaitOnTime          WaitClass = "on-time"
	WaitSlightlyDelayed WaitClass = "slightly-delayed"
	WaitDelayed         WaitClass = "delayed"
)

type WaitInfo struct {
	Class            WaitClass
	EstimatedMinutes int
	ElapsedMinutes   float64
	Percentage       float64
}

func EstimatedMinutes(o *Order) int {
	return BaseWaitMinutes + o.ItemCount()*PerItemWaitMinutes
}

// Monitored: hanya confirmed/preparing yg dipantau. pending belum mulai,
// ready sudah selesai masak, terminal jelas tidak.
func Monitored(s Status) bool {
	return s == StatusConfirmed || s == StatusPreparing
}

// WaitStatus mengklasifikasi keterlambatan order terhadap estimasinya.
// ok=false kalau order tidak dipantau.
// Batas: <=100% on-time, <=150% slightly-delayed, sisanya delayed.
func WaitStatus(o *Order, now time.Time) (WaitInfo, bool) {
	if !Monitored(o.Status) {
		return WaitInfo{}, false
	}
	est := EstimatedMinutes(o)
	elapsed := now.Sub(o.CreatedAt).Minutes()
	pct := elapsed / float64(est) * 100
	info := WaitInfo{EstimatedMinutes: est, ElapsedMinutes: elapsed, Percentage: pct}
	switch {
	case pct <= 100:
		info.Class = WaitOnTime
	case pct <= 150:
		info.Class = WaitSlightlyDelayed
	default:
		info.Class = WaitDelayed
	}
	return info, true
}

// IsDueForAutoConfirm: query eligibility utk scheduler eksternal; core tidak
// pegang timer sendiri.
func IsDueForAutoConfirm(o *Order, now time.Time, after time.Duration) bool {
	return o.Status == StatusPending && now.Sub(o.CreatedAt) >= after
}
