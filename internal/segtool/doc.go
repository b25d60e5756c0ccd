// Package segtool is the interactive segmentation tool. It owns a contour
// builder and a set of registered point sets, turns pointer and keyboard input
// into contour transitions, and runs visibility classification when asked to
// segment in or out.
//
// The tool never renders anything. It talks to the host view through the View
// interface (camera snapshot, modifier key, display membership) and hands
// results back as Result values and Polyline exports.
package segtool
