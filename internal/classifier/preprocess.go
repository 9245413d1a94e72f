package classifier

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	xdraw "golang.org/x/image/draw"
)

// ErrBadImage indicates the uploaded bytes could not be decoded as an image.
var ErrBadImage = errors.New("invalid image file")

const (
	resizeShortSide = 256
	cropSize        = 224
	channels        = 3
)

// ImageNet channel statistics. Fixed by the pretrained weights; changing
// them breaks compatibility with the weight file.
var (
	channelMean = [channels]float32{0.485, 0.456, 0.406}
	channelStd  = [channels]float32{0.229, 0.224, 0.225}
)

// TensorStats carries diagnostic statistics over the normalized input tensor.
type TensorStats struct {
	Min  float64 `json:"tensor_min"`
	Max  float64 `json:"tensor_max"`
	Mean float64 `json:"tensor_mean"`
}

// preprocess turns uploaded image bytes into the network's input tensor:
// decode, resize shortest side to 256, center-crop 224x224, scale to [0,1]
// and normalize per channel. The returned tensor is NCHW with N=1.
func preprocess(data []byte) ([]float32, TensorStats, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, TensorStats{}, fmt.Errorf("%w: %s", ErrBadImage, err)
	}

	resized := resizeShortestSide(img, resizeShortSide)
	cropped := centerCrop(resized, cropSize)
	tensor := normalize(cropped)
	stats := tensorStats(tensor)

	return tensor, stats, nil
}

// resizeShortestSide scales the image so its shortest side equals target,
// preserving aspect ratio. Smaller images are scaled up.
func resizeShortestSide(img image.Image, target int) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var newW, newH int
	if w < h {
		newW = target
		newH = int(float64(h)*float64(target)/float64(w) + 0.5)
	} else {
		newH = target
		newW = int(float64(w)*float64(target)/float64(h) + 0.5)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// centerCrop extracts a size x size window from the image center.
func centerCrop(img *image.RGBA, size int) *image.RGBA {
	bounds := img.Bounds()
	x0 := bounds.Min.X + (bounds.Dx()-size)/2
	y0 := bounds.Min.Y + (bounds.Dy()-size)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(dst, dst.Bounds(), img, image.Pt(x0, y0), xdraw.Src)
	return dst
}

// normalize converts the cropped RGBA image into a CHW float32 tensor,
// scaling channels to [0,1] and applying the ImageNet mean/std.
func normalize(img *image.RGBA) []float32 {
	tensor := make([]float32, channels*cropSize*cropSize)
	plane := cropSize * cropSize

	for y := 0; y < cropSize; y++ {
		for x := 0; x < cropSize; x++ {
			px := img.RGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			rgb := [channels]uint8{px.R, px.G, px.B}
			for c := 0; c < channels; c++ {
				v := float32(rgb[c]) / 255.0
				tensor[c*plane+y*cropSize+x] = (v - channelMean[c]) / channelStd[c]
			}
		}
	}

	return tensor
}

func tensorStats(tensor []float32) TensorStats {
	min, max := tensor[0], tensor[0]
	var sum float64
	for _, v := range tensor {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += float64(v)
	}

	return TensorStats{
		Min:  float64(min),
		Max:  float64(max),
		Mean: sum / float64(len(tensor)),
	}
}
