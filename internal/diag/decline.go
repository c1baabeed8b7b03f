package diag

// Decline records a pass giving up on an optimization for a well-formed
// reason. Unlike FatalError this is not
// an error: the core proceeds without the declined optimization. Passes
// collect Declines and hand them to whatever diagnostic sink the caller
// configured; the core itself never prints them.
type Decline struct {
	Code   string // one of the D-series codes in codes.go
	Pass   string
	Site   string // a short identifier for the candidate site (e.g. block id, local name)
	Reason string
}

// NewDecline constructs a Decline. Reason should be short enough to show up
// next to a loop or allocation site in a diagnostic dump; it is never an
// error message.
func NewDecline(code, pass, site, reason string) Decline {
	return Decline{Code: code, Pass: pass, Site: site, Reason: reason}
}

func (d Decline) String() string {
	return "[" + d.Code + "] " + d.Pass + " declined at " + d.Site + ": " + d.Reason
}

// Sink accumulates declines across a compilation so the final dump can
// report every optimization that did not fire and why.
type Sink struct {
	declines []Decline
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Record(d Decline) {
	s.declines = append(s.declines, d)
}

func (s *Sink) All() []Decline {
	return s.declines
}
