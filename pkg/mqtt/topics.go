package mqtt

import "fmt"

// StateTopic constructs the retained state topic under a prefix
// Pattern: {prefix}/state
func StateTopic(prefix string) string {
	return fmt.Sprintf("%s/state", prefix)
}

// OverrideTopic constructs the manual override topic under a prefix
// Pattern: {prefix}/override
func OverrideTopic(prefix string) string {
	return fmt.Sprintf("%s/override", prefix)
}
