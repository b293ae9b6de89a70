package steps

// contains enums for steps that we can build tasks of.
const (
	STEP_OPEN         = "open"         // Fetch the zone through the dns adapter
	STEP_PLAN         = "plan"         // Diff playbook against the zone
	STEP_DNS          = "dns"          // Stage and commit changes
	STEP_WAIT         = "wait"         // Poll until the panel publishes the zone
	STEP_NOTIFY       = "notify"       // STATE text gets put into current step name on client
	STEP_ERROR        = "error"        // Terminates executors! For errors, STATE text is essentially the error message.
	STEP_PUSH_SUMMARY = "push_summary" // Push this string into client's summary. Summary is shown at the end of operation.
)

// Describe to the user what we are doing right now.
func DescribeState(state string) string {
	switch state {
	case STEP_OPEN:
		return "Fetching zone"
	case STEP_PLAN:
		return "Comparing playbook with zone"
	case STEP_DNS:
		return "Applying DNS records"
	case STEP_WAIT:
		return "Waiting for the zone to go live"
	case STEP_NOTIFY:
		return ""
	case STEP_ERROR:
		return "During execution of the task following failed:"
	case STEP_PUSH_SUMMARY:
		return ""
	default:
		return ""
	}
}
