// Package harness runs YAML search scenarios against the real search engine.
//
// A scenario describes a component selection, a catalogue and one or more
// inline databases, runs a search over in-memory sources and checks the
// result with assertions. The event trace can be compared against a golden
// file.
//
// # Scenario Format
//
//	name: iron_redox
//	description: "Fe+3 is discovered from Fe+2 and e-"
//	components: [Fe+2, e-, H+]
//	catalogue:
//	  - { element: Fe, formula: Fe+2 }
//	  - { element: Fe, formula: Fe+3 }
//	redox: { nitrogen: false }
//	solids: include-all
//	databases:
//	  - name: main.db
//	    records:
//	      - name: Fe+3
//	        logk: -13.02
//	        components: [{ c: Fe+2, n: 1 }, { c: e-, n: -1 }]
//	assertions:
//	  - type: discovered
//	    names: [Fe+3]
//	  - type: logk
//	    name: FeOH+2
//	    value: -15.21
//
// # Assertion Types
//
//   - result_contains: every name is in the result
//   - result_excludes: no name is in the result
//   - discovered: the discovered components, in order
//   - passes: the number of scanning passes
//   - counts: the soluble and solid record counts
//   - logk: the logK of a result record, within a tolerance
//   - slot: the coefficient of one component of a result record
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run ID, a fresh logical clock and
// in-memory sources, so the trace is identical across runs. Progress
// events are left out of the trace.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/iron_redox.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
