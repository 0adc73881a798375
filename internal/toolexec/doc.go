// Package toolexec runs the external decode, encode, image, burn and eject
// programs.
//
// Commands are built from configured argument templates whose {placeholder}
// tokens are substituted per invocation. The Executor interface is the seam
// tests replace; CommandExecutor is the os/exec implementation. Failures carry
// the tail of the program's stderr so operators can see why a tool exited
// non-zero without digging through logs.
package toolexec
