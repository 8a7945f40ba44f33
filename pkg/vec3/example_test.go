package vec3_test

import (
	"fmt"

	"github.com/matzehuels/forcegraph/pkg/vec3"
)

func ExampleVec_ClampLength() {
	step := vec3.New(30, 40, 0)

	// Limit a step to the current temperature
	clamped := step.ClampLength(0, 10)
	fmt.Println(clamped)
	fmt.Printf("%.1f\n", clamped.Len())
	// Output:
	// (6.000, 8.000, 0.000)
	// 10.0
}

func ExampleVec_Normalize() {
	fmt.Println(vec3.New(0, 0, -4).Normalize())
	fmt.Println(vec3.Zero.Normalize())
	// Output:
	// (0.000, 0.000, -1.000)
	// (0.000, 0.000, 0.000)
}
