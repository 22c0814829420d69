package policy

import (
	"github.com/ironsheep/boxaug/internal/config"
	"github.com/ironsheep/boxaug/internal/ops"
)

// Pools holds the operators the policy samples from.
type Pools struct {
	Geometric   []ops.Operator
	Photometric []ops.Operator
	Occlusion   ops.Operator
}

// BuildPools creates the three operator pools from a validated configuration.
//
// Symmetric magnitudes (trans, rot, shear, mot_an) become [-m, m]; blur sigma
// and perspective scale become [0, m]. The photometric pool order is fixed:
// blur, motion blur, JPEG, contrast, hue/sat multiply, hue/sat add.
func BuildPools(cfg *config.Config) (*Pools, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	geometric := []ops.Operator{
		ops.Affine{
			Scale:      ops.Range{Min: cfg.ScaleMin, Max: cfg.ScaleMax},
			TranslateX: ops.Symmetric(cfg.Trans),
			TranslateY: ops.Symmetric(cfg.Trans),
			Rotate:     ops.Symmetric(cfg.Rot),
			Shear:      ops.Symmetric(cfg.Shear),
			Fill:       ops.FillColor,
		},
		ops.Perspective{
			Scale:    ops.Range{Min: 0, Max: cfg.Pers},
			KeepSize: cfg.KeepSize(),
			Fill:     ops.FillColor,
		},
	}

	photometric := []ops.Operator{
		ops.GaussianBlur{
			Sigma: ops.Range{Min: 0, Max: cfg.Sigma},
		},
		ops.MotionBlur{
			Kernel:    ops.Range{Min: float64(cfg.MotionKernelMin), Max: float64(cfg.MotionKernelMax)},
			Angle:     ops.Symmetric(cfg.MotionAngle),
			Direction: ops.Range{Min: cfg.MotionDirMin, Max: cfg.MotionDirMax},
		},
		ops.JPEGCompression{
			Quality: ops.Range{Min: float64(cfg.JPEGMin), Max: float64(cfg.JPEGMax)},
		},
		ops.Contrast{
			Alpha:      ops.Range{Min: cfg.ContrastAlphaMin, Max: cfg.ContrastAlphaMax},
			PerChannel: bool(cfg.ContrastChannel),
		},
		ops.HueSaturationMultiply{
			Mul:        ops.Range{Min: cfg.ColorMulMin, Max: cfg.ColorMulMax},
			PerChannel: bool(cfg.ColorChannel),
			Order:      ops.RGB,
		},
		ops.HueSaturationAdd{
			Add:        ops.Range{Min: cfg.ColorAddMin, Max: cfg.ColorAddMax},
			PerChannel: bool(cfg.ColorChannel),
		},
	}

	occlusion := ops.Cutout{
		Count: ops.Range{Min: 0, Max: float64(cfg.CutoutNum)},
		Size:  ops.Range{Min: cfg.CutoutSizeMin, Max: cfg.CutoutSizeMax},
		Fill:  ops.FillColor,
	}

	return &Pools{
		Geometric:   geometric,
		Photometric: photometric,
		Occlusion:   occlusion,
	}, nil
}
