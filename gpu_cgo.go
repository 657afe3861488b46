//go:build !tinygo && cgo

package sdfgen

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"

	"github.com/meet-radek/SDFGenFast/grid"
)

var (
	gpuOnce sync.Once
	gpuErr  error
)

// gpuInit creates the hidden 1x1 GL context used for compute dispatch.
// The context is kept for the life of the process; repeated calls are cheap.
func gpuInit() error {
	gpuOnce.Do(func() {
		runtime.LockOSThread()
		_, _, gpuErr = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
			Title:   "sdfgen",
			Version: [2]int{4, 6},
			Width:   1,
			Height:  1,
		})
		if gpuErr != nil {
			Logger().Debug("GPU probe failed", "err", gpuErr)
		}
	})
	return gpuErr
}

// IsGPUAvailable reports whether a usable compute-capable device is
// present. The probe runs once and is cached.
func IsGPUAvailable() bool { return gpuInit() == nil }

// makeLevelSetGPU builds the signed distance field on the GPU. Every cell
// computes its exact distance over the full triangle list in one compute
// dispatch, then a second dispatch walks each (j,k) column and flips signs
// from ray crossing parity, so no propagation pass is needed. Far field
// values can differ from the CPU backend, which only guarantees distance
// to a nearby triangle there.
func makeLevelSetGPU(tris [][3]uint32, verts []ms3.Vec, origin ms3.Vec, dx float32, ni, nj, nk int, phi *grid.Dense[float32]) error {
	if err := gpuInit(); err != nil {
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	phi.Resize(ni, nj, nk)

	// std430 vec3/uvec3 arrays have vec4 stride, so pad to 4 elements.
	verts4 := make([]float32, 4*len(verts))
	for n, v := range verts {
		verts4[4*n+0] = v.X
		verts4[4*n+1] = v.Y
		verts4[4*n+2] = v.Z
	}
	tris4 := make([]uint32, 4*len(tris))
	for n, tri := range tris {
		tris4[4*n+0] = tri[0]
		tris4[4*n+1] = tri[1]
		tris4[4*n+2] = tri[2]
	}
	params := []float32{
		origin.X, origin.Y, origin.Z, dx,
		float32(ni), float32(nj), float32(nk), float32(len(tris)),
	}

	const invocX = 64
	var p runtime.Pinner
	ssboVerts := loadSSBO(verts4, 0, gl.STATIC_DRAW)
	ssboTris := loadSSBO(tris4, 1, gl.STATIC_DRAW)
	ssboPhi := createSSBO(4*phi.Len(), 2, gl.DYNAMIC_READ)
	ssboParams := loadSSBO(params, 3, gl.STATIC_DRAW)
	p.Pin(&ssboVerts)
	p.Pin(&ssboTris)
	p.Pin(&ssboPhi)
	p.Pin(&ssboParams)
	defer p.Unpin()
	defer gl.DeleteBuffers(1, &ssboVerts)
	defer gl.DeleteBuffers(1, &ssboTris)
	defer gl.DeleteBuffers(1, &ssboPhi)
	defer gl.DeleteBuffers(1, &ssboParams)
	if err := glgl.Err(); err != nil {
		return fmt.Errorf("loading level set SSBOs: %w", err)
	}

	err := dispatchCompute(fmt.Sprintf(gpuDistanceShader, invocX), (phi.Len()+invocX-1)/invocX)
	if err != nil {
		return fmt.Errorf("distance pass: %w", err)
	}
	ncols := nj * nk
	err = dispatchCompute(fmt.Sprintf(gpuSignShader, invocX), (ncols+invocX-1)/invocX)
	if err != nil {
		return fmt.Errorf("sign pass: %w", err)
	}
	return copySSBO(phi.Data, ssboPhi)
}

// dispatchCompute compiles source as a compute shader, dispatches nWorkX
// work groups against the currently bound SSBO bases and waits on the
// storage barrier.
func dispatchCompute(source string, nWorkX int) error {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{Compute: source})
	if err != nil {
		return err
	}
	prog.Bind()
	defer prog.Delete()
	defer prog.Unbind()
	gl.DispatchCompute(uint32(nWorkX), 1, 1)
	if err := glgl.Err(); err != nil {
		return err
	}
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	return glgl.Err()
}

func loadSSBO[T any](slice []T, base, usage uint32) (ssbo uint32) {
	var p runtime.Pinner
	p.Pin(&ssbo)
	gl.GenBuffers(1, &ssbo)
	p.Unpin()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	size := len(slice) * int(unsafe.Sizeof(*new(T)))
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, unsafe.Pointer(&slice[0]), usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func createSSBO(size int, base, usage uint32) (ssbo uint32) {
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func copySSBO[T any](dst []T, ssbo uint32) error {
	singleSize := int(unsafe.Sizeof(*new(T)))
	bufSize := singleSize * len(dst)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, bufSize, gl.MAP_READ_BIT)
	if ptr == nil {
		if err := glgl.Err(); err != nil {
			return fmt.Errorf("mapping SSBO for readback: %w", err)
		}
		return errors.New("mapping SSBO for readback returned nil")
	}
	defer gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	gpuBytes := unsafe.Slice((*byte)(ptr), bufSize)
	bufBytes := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), bufSize)
	copy(bufBytes, gpuBytes)
	return nil
}

const gpuShaderCommon = `
layout(std430, binding = 0) readonly buffer VertBuf { vec4 verts[]; };
layout(std430, binding = 1) readonly buffer TriBuf { uvec4 tris[]; };
layout(std430, binding = 2) buffer PhiBuf { float phi[]; };
layout(std430, binding = 3) readonly buffer ParamBuf { float params[]; };
`

const gpuDistanceShader = `#version 430
layout(local_size_x = %d) in;
` + gpuShaderCommon + `
float pointSegmentDistance(vec3 x0, vec3 x1, vec3 x2) {
	vec3 dxv = x2 - x1;
	float m2 = dot(dxv, dxv);
	if (m2 <= 0.0) return distance(x0, x1);
	float s12 = clamp(dot(x2 - x0, dxv) / m2, 0.0, 1.0);
	return distance(x0, s12 * x1 + (1.0 - s12) * x2);
}

float pointTriangleDistance(vec3 x0, vec3 x1, vec3 x2, vec3 x3) {
	vec3 x13 = x1 - x3;
	vec3 x23 = x2 - x3;
	vec3 x03 = x0 - x3;
	float m13 = dot(x13, x13);
	float m23 = dot(x23, x23);
	float d = dot(x13, x23);
	float det = m13 * m23 - d * d;
	if (det <= 0.0) {
		return min(pointSegmentDistance(x0, x1, x2), min(pointSegmentDistance(x0, x1, x3), pointSegmentDistance(x0, x2, x3)));
	}
	float invdet = 1.0 / max(det, 1e-30);
	float a = dot(x13, x03);
	float b = dot(x23, x03);
	float w23 = invdet * (m23 * a - d * b);
	float w31 = invdet * (m13 * b - d * a);
	float w12 = 1.0 - w23 - w31;
	if (w23 >= 0.0 && w31 >= 0.0 && w12 >= 0.0) {
		return distance(x0, w23 * x1 + w31 * x2 + w12 * x3);
	} else if (w23 > 0.0) {
		return min(pointSegmentDistance(x0, x1, x2), pointSegmentDistance(x0, x1, x3));
	} else if (w31 > 0.0) {
		return min(pointSegmentDistance(x0, x1, x2), pointSegmentDistance(x0, x2, x3));
	}
	return min(pointSegmentDistance(x0, x1, x3), pointSegmentDistance(x0, x2, x3));
}

void main() {
	int ni = int(params[4]);
	int nj = int(params[5]);
	int nk = int(params[6]);
	uint gid = gl_GlobalInvocationID.x;
	if (gid >= uint(ni * nj * nk)) {
		return;
	}
	int i = int(gid) %% ni;
	int j = (int(gid) / ni) %% nj;
	int k = int(gid) / (ni * nj);
	vec3 origin = vec3(params[0], params[1], params[2]);
	float dx = params[3];
	vec3 gx = origin + dx * vec3(float(i), float(j), float(k));
	uint ntris = uint(params[7]);
	float dmin = float(ni + nj + nk) * dx;
	for (uint t = 0u; t < ntris; ++t) {
		uvec4 tri = tris[t];
		float d = pointTriangleDistance(gx, verts[tri.x].xyz, verts[tri.y].xyz, verts[tri.z].xyz);
		dmin = min(dmin, d);
	}
	phi[gid] = dmin;
}
`

const gpuSignShader = `#version 430
layout(local_size_x = %d) in;
` + gpuShaderCommon + `
// Double precision with the same lexicographic tie-break as the CPU
// parity pass, so both backends agree on lattice points lying exactly
// on shared triangle edges.
int orientation(double x1, double y1, double x2, double y2, out double area) {
	area = y1 * x2 - x1 * y2;
	if (area > 0.0lf) return 1;
	if (area < 0.0lf) return -1;
	if (y2 > y1) return 1;
	if (y2 < y1) return -1;
	if (x1 > x2) return 1;
	if (x1 < x2) return -1;
	return 0;
}

bool pointInTriangle2D(double x0, double y0, double x1, double y1, double x2, double y2, double x3, double y3, out dvec3 bary) {
	x1 -= x0; x2 -= x0; x3 -= x0;
	y1 -= y0; y2 -= y0; y3 -= y0;
	double a, b, c;
	int signa = orientation(x2, y2, x3, y3, a);
	if (signa == 0) return false;
	int signb = orientation(x3, y3, x1, y1, b);
	if (signb != signa) return false;
	int signc = orientation(x1, y1, x2, y2, c);
	if (signc != signa) return false;
	bary = dvec3(a, b, c) / (a + b + c);
	return true;
}

void main() {
	int ni = int(params[4]);
	int nj = int(params[5]);
	int nk = int(params[6]);
	uint gid = gl_GlobalInvocationID.x;
	if (gid >= uint(nj * nk)) {
		return;
	}
	int j = int(gid) %% nj;
	int k = int(gid) / nj;
	vec3 origin = vec3(params[0], params[1], params[2]);
	float invdx = 1.0 / params[3];
	uint ntris = uint(params[7]);
	for (uint t = 0u; t < ntris; ++t) {
		uvec4 tri = tris[t];
		// Fractional grid coordinates in float32, exactly as the CPU
		// pass computes them; only the predicate widens to double.
		vec3 fp = (verts[tri.x].xyz - origin) * invdx;
		vec3 fq = (verts[tri.y].xyz - origin) * invdx;
		vec3 fr = (verts[tri.z].xyz - origin) * invdx;
		dvec3 bary;
		if (!pointInTriangle2D(double(j), double(k),
			double(fp.y), double(fp.z), double(fq.y), double(fq.z), double(fr.y), double(fr.z), bary)) {
			continue;
		}
		double fi = bary.x * double(fp.x) + bary.y * double(fq.x) + bary.z * double(fr.x);
		int icross = max(int(ceil(fi)), 0);
		// Each crossing toggles the sign of every cell past it in +i.
		for (int i = icross; i < ni; ++i) {
			uint n = uint(i) + uint(ni) * (uint(j) + uint(nj) * uint(k));
			phi[n] = -phi[n];
		}
	}
}
`
