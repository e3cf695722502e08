package quiz

import "fmt"

// State is a step of the English test flow
type State int

const (
	StateIdle State = iota
	StateChoosingFocus
	StateChoosingLevel
	StateChoosingSubcategory
	StateChoosingCount
	StateTakingTest
)

var stateNames = map[State]string{
	StateIdle:                "idle",
	StateChoosingFocus:       "choosing_focus",
	StateChoosingLevel:       "choosing_level",
	StateChoosingSubcategory: "choosing_subcategory",
	StateChoosingCount:       "choosing_count",
	StateTakingTest:          "taking_test",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Input is a user action that may move the flow forward
type Input int

const (
	InputOpenMenu Input = iota
	InputSelectFocus
	InputSelectLevel
	InputSelectSubcategory
	InputStartTest
	InputSubmitAnswer
	InputComplete
	InputCancel
)

var inputNames = map[Input]string{
	InputOpenMenu:          "open_menu",
	InputSelectFocus:       "select_focus",
	InputSelectLevel:       "select_level",
	InputSelectSubcategory: "select_subcategory",
	InputStartTest:         "start_test",
	InputSubmitAnswer:      "submit_answer",
	InputComplete:          "complete",
	InputCancel:            "cancel",
}

func (i Input) String() string {
	if name, ok := inputNames[i]; ok {
		return name
	}
	return fmt.Sprintf("input(%d)", int(i))
}

type transitionKey struct {
	from  State
	input Input
}

var allStates = []State{
	StateIdle, StateChoosingFocus, StateChoosingLevel,
	StateChoosingSubcategory, StateChoosingCount, StateTakingTest,
}

// transitions lists every legal (state, input) pair. Anything missing is rejected.
var transitions = func() map[transitionKey]State {
	t := map[transitionKey]State{
		{StateChoosingFocus, InputSelectFocus}:             StateChoosingLevel,
		{StateChoosingLevel, InputSelectLevel}:             StateChoosingSubcategory,
		{StateChoosingSubcategory, InputSelectSubcategory}: StateChoosingCount,
		{StateTakingTest, InputSubmitAnswer}:               StateTakingTest,
		{StateTakingTest, InputComplete}:                   StateIdle,

		// back buttons
		{StateChoosingLevel, InputSelectFocus}:       StateChoosingLevel,
		{StateChoosingSubcategory, InputSelectFocus}: StateChoosingLevel,
		{StateChoosingCount, InputSelectFocus}:       StateChoosingLevel,
		{StateChoosingSubcategory, InputSelectLevel}: StateChoosingSubcategory,
		{StateChoosingCount, InputSelectLevel}:       StateChoosingSubcategory,
	}
	for _, s := range allStates {
		t[transitionKey{s, InputOpenMenu}] = StateChoosingFocus
		t[transitionKey{s, InputStartTest}] = StateTakingTest
		t[transitionKey{s, InputCancel}] = StateIdle
	}
	return t
}()

// Transition returns the state reached from s on input, or
// ErrIllegalTransition if the pair is not in the table.
func Transition(s State, input Input) (State, error) {
	next, ok := transitions[transitionKey{s, input}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, input, s)
	}
	return next, nil
}
