// Package ocr reads card names with Tesseract.
//
// Tesseract must be installed on the system (gosseract links against
// libtesseract):
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng libtesseract-dev
//   - macOS: brew install tesseract
//
// A card's name is printed across its top edge. CardName crops the top
// quarter of a card box, binarizes it so that light lettering on a dark
// banner survives, and returns the first recognized line cleaned down to
// letters, digits, spaces, apostrophes and hyphens. Names shorter than two
// characters come back as "unknown".
//
// OCR is CPU-intensive. A Reader is safe for concurrent use; each call
// opens its own Tesseract client.
package ocr
