// Command tinyfsctl creates, inspects, and populates tinyfs images from the
// host shell, and (with -tags fuse) mounts one as a real filesystem.
package main

func main() {
	Execute()
}
