// Package imaging provides the image I/O used around augmentation: loading
// source frames from disk, encoding augmented frames for transport, and
// rendering annotation previews.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner.
// Rectangles follow image.Rectangle: Min is inclusive, Max is exclusive.
//
// # Formats
//
// Loading decodes PNG, JPEG, GIF and WebP. The decoder is chosen from the
// file contents, not its extension. Encoded output is always PNG so that
// augmented pixels are not recompressed a second time.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Decoded images are shared between
// callers and must be treated as read-only.
package imaging
