package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// DefaultNoiseSigma is the standard deviation of the per-band Gaussian noise
const DefaultNoiseSigma = 0.01

// MaxCubeValues bounds height × width × bands of a reconstructed cube (128 MiB of float64)
const MaxCubeValues = 16 << 20

var (
	// ErrNoWavelengths is returned when no target bands are requested
	ErrNoWavelengths = errors.New("spectral: no target wavelengths")
	// ErrCubeTooLarge is returned when a cube would exceed MaxCubeValues
	ErrCubeTooLarge = errors.New("spectral: cube exceeds size limit")
)

// Reconstructor builds reflectance cubes from RGB images
type Reconstructor struct {
	NoiseSigma float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewReconstructor creates a reconstructor with a clock-seeded noise source
func NewReconstructor(noiseSigma float64) *Reconstructor {
	return NewReconstructorWithSource(noiseSigma, rand.NewSource(time.Now().UnixNano()))
}

// NewReconstructorWithSource creates a reconstructor with an explicit noise source
func NewReconstructorWithSource(noiseSigma float64, src rand.Source) *Reconstructor {
	return &Reconstructor{NoiseSigma: noiseSigma, rng: rand.New(src)}
}

// callRand seeds a per-call generator from the shared source
func (r *Reconstructor) callRand() *rand.Rand {
	r.mu.Lock()
	seed := r.rng.Int63()
	r.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// Reconstruct converts img into a cube with one band per wavelength
func (r *Reconstructor) Reconstruct(img *RGBImage, wavelengths []float64) (*Cube, error) {
	if img == nil || img.Height <= 0 || img.Width <= 0 {
		return nil, ErrEmptyImage
	}
	if len(wavelengths) == 0 {
		return nil, ErrNoWavelengths
	}

	bands := len(wavelengths)
	if int64(img.Height)*int64(img.Width)*int64(bands) > MaxCubeValues {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrCubeTooLarge, img.Height, img.Width, bands)
	}
	data := make([]float64, img.Height*img.Width*bands)
	rng := r.callRand()

	for p := 0; p < img.Height*img.Width; p++ {
		red, green, blue := img.Pix[p*3], img.Pix[p*3+1], img.Pix[p*3+2]
		out := data[p*bands : (p+1)*bands]
		for b, wl := range wavelengths {
			v := Reflectance(wl, red, green, blue)
			if r.NoiseSigma > 0 {
				v += rng.NormFloat64() * r.NoiseSigma
			}
			out[b] = utils.Clamp(v, 0, 1)
		}
	}

	return NewCube(img.Height, img.Width, wavelengths, data)
}

func blueMix(r, g, b float64) float64  { return 0.80*b + 0.15*g + 0.05*r }
func greenMix(r, g, b float64) float64 { return 0.10*b + 0.80*g + 0.10*r }
func redMix(r, g, b float64) float64   { return 0.05*b + 0.15*g + 0.80*r }
func swirMix(r, g, b float64) float64  { return 0.40*r + 0.30*g + 0.30*b }

// Reflectance is the noise-free synthetic reflectance at wavelength wl (nm)
// for normalized channels r, g, b. The result is not clamped.
func Reflectance(wl, r, g, b float64) float64 {
	switch {
	case wl < 450:
		return blueMix(r, g, b)
	case wl < 520:
		return utils.Lerp(blueMix(r, g, b), greenMix(r, g, b), (wl-450)/70)
	case wl < 600:
		return greenMix(r, g, b)
	case wl < 670:
		return utils.Lerp(greenMix(r, g, b), redMix(r, g, b), (wl-600)/70)
	case wl < 750:
		// red edge: reflectance rises toward the NIR plateau for green canopies
		veg := math.Max(0, g-math.Max(r, b))
		return redMix(r, g, b) + (wl-670)/80*0.35*veg
	case wl < 1100:
		nir := 0.20*r + 0.60*g + 0.20*b
		if g > r && g > b {
			nir = nir*1.5 + 0.1
		}
		return nir
	case wl < 1350:
		return 0.8 * (0.3*r + 0.4*g + 0.3*b)
	case wl < 1450:
		return 0.35 * (r + g + b) / 3
	case wl < 1950:
		return 0.6 * swirMix(r, g, b)
	default:
		w := 0.5 - 0.2*math.Min(1, (wl-1950)/550)
		return w * swirMix(r, g, b)
	}
}
