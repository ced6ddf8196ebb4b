package app

import "math"

// epsilon absorbs binary rounding: 100×0.57 is 56.999… in float64.
const epsilon = 1e-9

// Layout returns the shell's geometry for a window of cols×rows: the
// terminal pane takes floor(cols×ratio) columns and every row but the
// chrome. Both are at least 1.
func Layout(cols, rows int, ratio float64, chromeRows int) (termRows, termCols int) {
	termRows = max(rows-chromeRows, 1)
	termCols = max(int(math.Floor(float64(cols)*ratio+epsilon)), 1)
	return termRows, termCols
}
