// Package spectral turns three-channel RGB imagery into a synthetic reflectance cube.
//
// The reconstruction is a physically-motivated model, not calibrated sensor data:
// each target wavelength is a fixed linear blend of the normalized red, green and
// blue channels chosen per wavelength regime, with a vegetation boost in the near
// infrared, a water-absorption dip near 1400 nm and decaying weights in the far
// short-wave infrared. Independent Gaussian noise is added per band and every
// value is clamped to [0,1].
package spectral
