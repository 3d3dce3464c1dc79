/*
Package runner executes keyword-driven suites.

A run visits the suite tree depth first. Every suite gets its own execution
context on the runner's context stack: a copy of the global variables
overlaid with the suite's variable table, chained to the parent suite's
variables, and a namespace with BuiltIn and the suite's imported libraries.

Suite lifecycle:

	setup -> tests -> child suites -> teardown

A failing suite setup fails every test below the suite without running it.
The suite teardown always runs once the suite was started; a failing teardown
fails every test of the suite.

Test lifecycle:

	setup -> body (stops at the first failure) -> teardown

The teardown always runs. TestFailures combines the three stages into one
verdict and a message in which every failing stage stays visible.

Fatal failures, such as exceeding the limit of started keywords or the Fatal
Error keyword, stop the rest of the run: remaining tests fail without running,
while teardowns of started suites still run.
*/
package runner
