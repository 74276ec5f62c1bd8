// Command portrait-fx applies face warping and portrait compositing effects
// to image files. Landmarks and segmentation masks are read from sidecar
// files stored next to each image.
package main

func main() {
	Execute()
}
