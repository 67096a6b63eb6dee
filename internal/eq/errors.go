package eq

import "fmt"

func errOutOfRange(i, n int) error {
	return fmt.Errorf("band index %d out of range [0, %d)", i, n)
}

func errNotGeneric(m Mode) error {
	return fmt.Errorf("custom band layouts require generic mode, current mode is %q", m)
}
