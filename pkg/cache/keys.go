package cache

import "fmt"

// ProjectionKey is the key of one named projection within a namespace generation.
func ProjectionKey(namespace string, generation int64, name string) string {
	return fmt.Sprintf("%s:v%d:%s", namespace, generation, name)
}

// GenerationKey holds the current generation counter of namespace.
func GenerationKey(namespace string) string {
	return namespace + ":generation"
}

// ProjectionPattern matches the projections of every generation of namespace
// but not its generation counter.
func ProjectionPattern(namespace string) string {
	return namespace + ":v*"
}
