// Package bridge exposes R2D7 shades over MQTT.
//
// For a topic prefix "r2d7" and a shade named "office" the bridge uses:
//
//	r2d7/office/set       command topic (OPEN, CLOSE or a position 0-100)
//	r2d7/office/position  retained cached position
//	r2d7/office/state     retained "open" or "closed"
//	r2d7/status           retained "online" or "offline"
//
// Positions are the cached values of the shade units. The controller does
// not report the actual position.
package bridge
