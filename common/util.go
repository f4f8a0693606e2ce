// Package common holds small helpers shared by this module's tests and
// demo code.
package common

import "os"

// PanicIfErr panics if err is non-nil. It is used only in contexts where an
// error is a programming mistake, never for expected, recoverable outcomes.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Remove deletes path, ignoring any error. It is meant for test cleanup
// (`defer common.Remove(dbFile)`), where a failed removal of a scratch file
// is not itself a test failure.
func Remove(path string) {
	_ = os.Remove(path)
}
