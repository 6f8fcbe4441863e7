package client

// Notice is a user-visible message
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier shows notices to the user
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// FormatAddress shortens an address to 0x1234...abcd
func FormatAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
