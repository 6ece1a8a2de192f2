// Package textutil compares titles and person names the way the matcher needs.
//
// Every comparison runs on Normalize output: accents folded, lowercase ASCII
// letters and digits, single spaces. Similarity is an edit-distance ratio on
// a 0-100 scale. CompareTitles and ComparePersonNames layer catalogue-specific
// tolerances on top of it (subtitles, middle names, abbreviated surnames).
package textutil
