package pipeline

import "time"

// UppercasePipeline returns a single function uppercasing its input.
func UppercasePipeline() *Pipeline {
	return &Pipeline{
		Name:        "uppercase",
		Description: "Single function: payload is uppercased",
		Steps: []Step{
			{Function: "uppercase", Op: OpUpper, Delay: Duration(5 * time.Millisecond)},
		},
	}
}

// TextPipeline returns a three step text pipeline.
// Simulates: normalize → reverse → shout
func TextPipeline() *Pipeline {
	return &Pipeline{
		Name:        "text",
		Description: "Three chained functions sharing one trace",
		Steps: []Step{
			{
				Function: "normalize",
				Op:       OpLower,
				Delay:    Duration(10 * time.Millisecond),
				Tags:     map[string]string{"text.stage": "normalize"},
			},
			{
				Function: "reverse",
				Op:       OpReverse,
				Delay:    Duration(20 * time.Millisecond),
				Tags:     map[string]string{"text.stage": "transform"},
			},
			{
				Function: "shout",
				Op:       OpUpper,
				Delay:    Duration(5 * time.Millisecond),
				Tags:     map[string]string{"text.stage": "output"},
			},
		},
	}
}

// FailingPipeline returns a function that always fails with "X".
func FailingPipeline() *Pipeline {
	return &Pipeline{
		Name:        "failing",
		Description: "Single function that always fails",
		Steps: []Step{
			{Function: "broken", Op: OpFail, ErrorMessage: "X"},
		},
	}
}

// FlakyPipeline returns a two step pipeline whose second step fails 30% of
// the time.
func FlakyPipeline() *Pipeline {
	return &Pipeline{
		Name:        "flaky",
		Description: "Two functions, the second failing at random",
		Steps: []Step{
			{Function: "ingest", Op: OpEcho, Delay: Duration(5 * time.Millisecond)},
			{
				Function:     "enrich",
				Op:           OpUpper,
				Delay:        Duration(15 * time.Millisecond),
				ErrorRate:    0.3,
				ErrorMessage: "upstream unavailable",
			},
		},
	}
}
