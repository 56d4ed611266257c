package pollfsm_test

import (
	"fmt"

	"github.com/comalice/pollfsm"
)

func Example() {
	names := []string{"idle", "running", "stopped", "lap"}
	runner := pollfsm.RunnerFuncs{
		Entered: func(s pollfsm.StateID) error {
			fmt.Println("enter", names[s])
			return nil
		},
	}

	m, err := pollfsm.New(len(names), runner, pollfsm.WithStateNames(names...))
	if err != nil {
		panic(err)
	}
	_ = m.AddTransition(0, pollfsm.BTN1Press, 1)
	_ = m.AddTransition(1, pollfsm.BTN1Press, 3)
	_ = m.AddTransition(1, pollfsm.BTN2Press, 2)

	if err := m.Start(); err != nil {
		panic(err)
	}
	_ = m.Post(pollfsm.BTN1Press)
	_ = m.Post(pollfsm.BTN2Press)
	for {
		ok, err := m.Tick()
		if err != nil || !ok {
			break
		}
	}
	fmt.Println("final", m.StateName(m.CurrentState()))

	// Output:
	// enter idle
	// enter running
	// enter stopped
	// final stopped
}

func ExampleMachineBuilder() {
	m, err := pollfsm.NewMachineBuilder().
		On("closed", "BTN1_PRESS", "open").
		On("open", "TIMEOUT", "closed").
		Build(nil)
	if err != nil {
		panic(err)
	}
	_ = m.Start()
	_ = m.ProcessEvent(pollfsm.BTN1Press)
	fmt.Println(m.StateName(m.CurrentState()))
	_ = m.ProcessEvent(pollfsm.Timeout)
	fmt.Println(m.StateName(m.CurrentState()))

	// Output:
	// open
	// closed
}
