package pollfsm

// QueueOf exposes the machine's queue to the external tests.
func QueueOf(m *Machine) *EventQueue {
	return m.queue
}
