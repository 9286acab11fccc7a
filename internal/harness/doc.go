// Package harness runs patch scenarios: small YAML files that name a patch
// and state what its trace must produce.
//
// # Scenario Format
//
//	name: sine_tables
//	description: "The sine patch scales one oscillator by a constant"
//	patch: sine                 # built-in name, or a file relative to the scenario
//	assertions:
//	  - type: constants
//	    values: [0, 0.1]
//	  - type: controls
//	    name: freq
//	    values: [440]
//	  - type: op_count
//	    kind: SinOsc
//	    count: 1
//	  - type: op
//	    index: 1
//	    kind: SinOsc
//	    rate: audio
//	    inputs: ["op:0", "const:0"]
//	  - type: bytes
//	    count: 52
//
// A scenario may carry its patch inline under source, in the YAML patch
// format, instead of naming one under patch.
//
// # Assertion Types
//
//   - constants: the constants table equals values
//   - controls: the controls table, or one parameter's span of it, equals values
//   - op_count: the number of operations, optionally of one kind, equals count
//   - op: the operation at index has the given kind, rate and inputs
//   - bytes: the encoded graph is count bytes long
//   - error: loading or tracing the patch fails with code, is, or contains
//
// # Checks
//
// Besides the assertions, every traced graph must validate, decode from
// its own encoding to the same tables, and read back unchanged from a
// fresh in-memory patch library.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("scenarios/sine.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range result.Errors {
//	    log.Println(e)
//	}
package harness
