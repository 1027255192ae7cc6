// Package hocr reads hOCR, the HTML-based format local OCR engines such as
// Tesseract emit, into a flat page/line/word model.
//
// Only what layout recovery needs is kept:
//
// - Pages with their pixel bounding box
// - Every line-like element (ocr_line, ocr_header, ocr_caption, ocr_textfloat)
// with its bounding box, x_size and baseline
// - Words with text, bounding box, confidence and bold/italic markup
//
// Areas and paragraphs are flattened away; lines keep document order.
//
// Main Functions:
//
// - Parse: parses hOCR HTML into a Document
// - ParseTitle: splits an hOCR title attribute into its properties
package hocr
