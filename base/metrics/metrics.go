package metrics

const (
	ControlCyclesH          = "The total number of control cycles executed"
	ControlCyclesN          = "fuzzyctl_control_cycles"
	ControlUndefinedH       = "The total number of control cycles with an undefined controller output"
	ControlUndefinedN       = "fuzzyctl_control_undefined_outputs"
	ControlOutputH          = "The crisp value most recently applied to the plant, by output variable"
	ControlOutputN          = "fuzzyctl_control_output"
	ControlInferenceTimeH   = "The duration of one inference cycle in seconds"
	ControlInferenceTimeN   = "fuzzyctl_control_inference_seconds"
	ControlReconfigurationH = "The total number of controller reconfigurations applied by the loop"
	ControlReconfigurationN = "fuzzyctl_control_reconfigurations"
)
