// Package shade models individual shades behind an R2D7 controller.
//
// A Unit converts absolute position requests (0 = closed, 100 = open)
// into relative motor run times, because the controller only knows how
// to run a motor for a number of twentieths of a second. Positions are
// an optimistic local cache: the controller reports nothing back, so the
// cache is updated whether or not a command reached the hardware.
// Cumulative drift is an accepted limitation of this hardware class.
package shade
