package production

import (
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/gjson"
)

// Summary is the subset of a JSON snapshot shown by inspection tools.
type Summary struct {
	MachineID string
	State     int
	StateName string
	Running   bool
	Timers    map[string]time.Duration
	Taken     time.Time
}

// Inspect reads the fields of a JSON snapshot without decoding the whole
// document, so snapshots written by newer versions still inspect.
func Inspect(data []byte) (Summary, error) {
	if !gjson.ValidBytes(data) {
		return Summary{}, fmt.Errorf("snapshot is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	id := doc.Get("machineID")
	if !id.Exists() {
		return Summary{}, fmt.Errorf("snapshot has no machineID")
	}

	s := Summary{
		MachineID: id.String(),
		State:     int(doc.Get("state").Int()),
		StateName: doc.Get("stateName").String(),
		Running:   doc.Get("running").Bool(),
		Timers:    map[string]time.Duration{},
		Taken:     doc.Get("timestamp").Time(),
	}
	doc.Get("timers").ForEach(func(key, value gjson.Result) bool {
		s.Timers[key.String()] = time.Duration(value.Int()) * time.Millisecond
		return true
	})
	return s, nil
}

// TimerNames returns the summary's timer names in order.
func (s Summary) TimerNames() []string {
	names := make([]string, 0, len(s.Timers))
	for n := range s.Timers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
