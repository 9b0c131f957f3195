package analysis

// Panel advice shown under each detail panel.
const (
	AdviceStyle        = "Ensure your code adheres to style guidelines to improve readability and maintainability."
	AdviceComplexity   = "Reduce complexity to make your code more understandable and easier to maintain."
	AdviceSecurity     = "Address security issues to ensure your code is secure and free from vulnerabilities."
	AdviceComments     = "Add more comments to explain the purpose and functionality of your code."
	AdvicePerformance  = "Optimize your code to improve performance."
	AdviceDependencies = "Keep your dependencies up to date to avoid vulnerabilities in third-party packages."
)

// Checklist is the improvement checklist offered by the dashboard.
var Checklist = []string{
	AdviceStyle,
	AdviceComplexity,
	AdviceSecurity,
	AdviceComments,
	AdvicePerformance,
	AdviceDependencies,
}
