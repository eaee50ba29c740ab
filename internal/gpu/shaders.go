//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/core"
)

// Embedded WGSL sources for the render graph's passes, compiled to SPIR-V
// at CompileShaders time via naga.

//go:embed shaders/geometry.wgsl
var geometryShaderSource string

//go:embed shaders/opaque_shade.wgsl
var opaqueShadeShaderSource string

//go:embed shaders/transparent_oit.wgsl
var transparentOITShaderSource string

//go:embed shaders/composite.wgsl
var compositeShaderSource string

//go:embed shaders/display.wgsl
var displayShaderSource string

//go:embed shaders/mipmap.wgsl
var mipmapShaderSource string

// ShaderModules holds the compiled shader modules for every pass in the
// render graph (spec "5-pass render graph"): geometry, opaque compute
// shade, transparent forward+OIT, composite, and display, plus the
// mipmap compute shader used outside the per-frame graph.
type ShaderModules struct {
	Geometry      core.ShaderModuleID
	OpaqueShade   core.ShaderModuleID
	TransparentOIT core.ShaderModuleID
	Composite     core.ShaderModuleID
	Display       core.ShaderModuleID
	Mipmap        core.ShaderModuleID
}

// IsValid returns true if every shader module has been compiled.
func (s *ShaderModules) IsValid() bool {
	return !s.Geometry.IsZero() &&
		!s.OpaqueShade.IsZero() &&
		!s.TransparentOIT.IsZero() &&
		!s.Composite.IsZero() &&
		!s.Display.IsZero() &&
		!s.Mipmap.IsZero()
}

// compileShaderToSPIRV compiles WGSL source to a SPIR-V uint32 slice via
// naga, the same conversion used elsewhere in this module's ancestry for
// turning naga.Compile's little-endian byte stream into driver-ready
// words.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// createShaderModule compiles source and creates a device shader module,
// tagging any failure with label so a bad WGSL edit in one pass doesn't
// read as a mysterious failure in another.
func createShaderModule(deviceID core.DeviceID, label, source string) (core.ShaderModuleID, error) {
	spirv, err := compileShaderToSPIRV(source)
	if err != nil {
		return core.ShaderModuleID{}, fmt.Errorf("%s: %w", label, err)
	}

	moduleID, err := core.CreateShaderModule(deviceID, spirv)
	if err != nil {
		return core.ShaderModuleID{}, fmt.Errorf("%s: failed to create shader module: %w", label, err)
	}
	return moduleID, nil
}

// CompileShaders compiles every render-graph shader module against deviceID.
func CompileShaders(deviceID core.DeviceID) (*ShaderModules, error) {
	geometry, err := createShaderModule(deviceID, "geometry", geometryShaderSource)
	if err != nil {
		return nil, err
	}
	opaqueShade, err := createShaderModule(deviceID, "opaque-shade", opaqueShadeShaderSource)
	if err != nil {
		return nil, err
	}
	transparentOIT, err := createShaderModule(deviceID, "transparent-oit", transparentOITShaderSource)
	if err != nil {
		return nil, err
	}
	composite, err := createShaderModule(deviceID, "composite", compositeShaderSource)
	if err != nil {
		return nil, err
	}
	display, err := createShaderModule(deviceID, "display", displayShaderSource)
	if err != nil {
		return nil, err
	}
	mipmap, err := createShaderModule(deviceID, "mipmap", mipmapShaderSource)
	if err != nil {
		return nil, err
	}

	return &ShaderModules{
		Geometry:       geometry,
		OpaqueShade:    opaqueShade,
		TransparentOIT: transparentOIT,
		Composite:      composite,
		Display:        display,
		Mipmap:         mipmap,
	}, nil
}

// GetGeometryShaderSource returns the WGSL source for the geometry pass.
func GetGeometryShaderSource() string { return geometryShaderSource }

// GetOpaqueShadeShaderSource returns the WGSL source for the opaque
// compute shading pass.
func GetOpaqueShadeShaderSource() string { return opaqueShadeShaderSource }

// GetTransparentOITShaderSource returns the WGSL source for the
// transparent forward+OIT pass.
func GetTransparentOITShaderSource() string { return transparentOITShaderSource }

// GetCompositeShaderSource returns the WGSL source for the composite pass.
func GetCompositeShaderSource() string { return compositeShaderSource }

// GetDisplayShaderSource returns the WGSL source for the display pass.
func GetDisplayShaderSource() string { return displayShaderSource }

// GetMipmapShaderSource returns the WGSL source for the mipmap compute shader.
func GetMipmapShaderSource() string { return mipmapShaderSource }
