package models

import "strings"

// Class is the display category of an entry.
type Class string

const (
	ClassFolder       Class = "folder"
	ClassDocument     Class = "document"
	ClassSpreadsheet  Class = "spreadsheet"
	ClassPresentation Class = "presentation"
	ClassImage        Class = "image"
	ClassOther        Class = "other"
)

const (
	colorFolder       = "#f6e27f"
	colorDocument     = "#9bbec7"
	colorSpreadsheet  = "#a8b7ab"
	colorPresentation = "#f6e27f"
	colorImage        = "#e2c391"
)

var extClasses = map[string]Class{
	"doc": ClassDocument, "docx": ClassDocument, "txt": ClassDocument, "pdf": ClassDocument, "rtf": ClassDocument,
	"xls": ClassSpreadsheet, "xlsx": ClassSpreadsheet, "csv": ClassSpreadsheet,
	"ppt": ClassPresentation, "pptx": ClassPresentation,
	"jpg": ClassImage, "jpeg": ClassImage, "png": ClassImage, "gif": ClassImage, "bmp": ClassImage, "svg": ClassImage,
}

// ClassOf returns the file class for a file name, keyed on the text after
// the last dot.
func ClassOf(name string) Class {
	if name == "" {
		return ClassOther
	}
	ext := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i+1:]
	}
	if c, ok := extClasses[strings.ToLower(ext)]; ok {
		return c
	}
	return ClassOther
}

// Color returns the display colour of a class.
func (c Class) Color() string {
	switch c {
	case ClassFolder:
		return colorFolder
	case ClassSpreadsheet:
		return colorSpreadsheet
	case ClassPresentation:
		return colorPresentation
	case ClassImage:
		return colorImage
	default:
		return colorDocument
	}
}

// ClassOfEntry classifies a file or folder.
func ClassOfEntry(e Entry) Class {
	switch v := e.(type) {
	case *Folder:
		return ClassFolder
	case *File:
		return ClassOf(v.Name)
	default:
		return ClassOther
	}
}

// DisplayEntry is an entry decorated for rendering.
type DisplayEntry struct {
	Entry
	Class Class
	Color string
}

// Format decorates a listing. It is pure and depends only on type and name,
// so formatting the same items again yields the same output.
func Format(items []Item) []DisplayEntry {
	out := make([]DisplayEntry, len(items))
	for i, it := range items {
		e := ToEntry(it)
		c := ClassOfEntry(e)
		out[i] = DisplayEntry{Entry: e, Class: c, Color: c.Color()}
	}
	return out
}

