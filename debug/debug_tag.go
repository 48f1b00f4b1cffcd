//go:build debug

package debug

func init() {
	Debug = true
}
