// Package media decodes embedded media payloads into transient files and
// derives filetype labels from content types.
//
// Every file the Codec creates is returned as a *TempFile handle owned by the
// caller. The codec never deletes what it writes: callers must Release each
// handle once the artifact is no longer displayed, otherwise disk usage grows
// with every call.
package media
