// Package digest computes content hashes of local files.
//
// Files are read in bounded chunks so that memory use does not grow with
// file size. The caller may ask the reader to retain the file contents when
// the file is small enough to be uploaded afterwards; larger files are
// hashed without being retained.
package digest
