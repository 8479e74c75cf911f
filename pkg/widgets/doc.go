// Package widgets translates parameter and output descriptions into widget
// descriptors.
//
// Media detection relies on the free-text description of a parameter or
// field containing "image", "audio" or "video". This is a known source of
// misclassification (a description such as "image size in pixels" on a file
// parameter selects the image widget) and is kept behind the MediaSniffer
// interface so it can be replaced once schemas carry an explicit media field.
package widgets
