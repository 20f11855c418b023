// Package archive builds the zipped upload payload from a project subfolder.
package archive
