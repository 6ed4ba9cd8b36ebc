package gpufilter

import (
	"github.com/Faultbox/waterways/internal/engine/filter"
	"github.com/Faultbox/waterways/internal/engine/shader"
)

// header is shared by every filter program. Images are addressed with
// texelFetch so results match the CPU kernels pixel for pixel.
const header = shader.Version + `
uniform sampler2D u_input0;
uniform sampler2D u_input1;
uniform sampler2D u_input2;
uniform sampler2D u_input3;
uniform int u_has0;
uniform int u_has1;
uniform int u_has2;
uniform int u_has3;
uniform float u_radius;
uniform float u_resolution;
uniform float u_fill;
uniform float u_cutoff;
uniform float u_offset;
uniform int u_row_count;
uniform int u_tiles;
uniform ivec2 u_size;

out vec4 frag_color;

ivec2 px() { return ivec2(gl_FragCoord.xy); }

vec4 fetch0(ivec2 p) {
	ivec2 s = textureSize(u_input0, 0);
	return texelFetch(u_input0, clamp(p, ivec2(0), s - 1), 0);
}

vec4 gray(float v) { return vec4(v, v, v, 1.0); }
`

var fragmentSources = map[filter.ShaderID]string{
	filter.ShaderDilatePass1: header + `
void main() {
	ivec2 p = px();
	float r = max(u_radius, 1.0);
	int reach = int(r);
	int w = textureSize(u_input0, 0).x;
	float best = 1.0;
	for (int d = 0; d <= reach; d++) {
		bool lit = (p.x - d >= 0 && texelFetch(u_input0, ivec2(p.x - d, p.y), 0).r > 0.5) ||
			(p.x + d < w && texelFetch(u_input0, ivec2(p.x + d, p.y), 0).r > 0.5);
		if (lit) {
			best = min(float(d) / r, 1.0);
			break;
		}
	}
	frag_color = gray(best);
}
`,
	filter.ShaderDilatePass2: header + `
void main() {
	ivec2 p = px();
	float r = max(u_radius, 1.0);
	int reach = int(r);
	int h = textureSize(u_input0, 0).y;
	float best = 1.0;
	for (int y = max(0, p.y - reach); y <= min(h - 1, p.y + reach); y++) {
		float hd = texelFetch(u_input0, ivec2(p.x, y), 0).r;
		float dy = float(y - p.y) / r;
		best = min(best, sqrt(hd * hd + dy * dy));
	}
	frag_color = gray(best);
}
`,
	filter.ShaderDilatePass3: header + `
void main() {
	ivec2 p = px();
	float v = 1.0 - texelFetch(u_input0, p, 0).r;
	if (v > u_fill) {
		frag_color = gray(v);
	} else if (u_has1 != 0) {
		frag_color = texelFetch(u_input1, p, 0);
	} else {
		frag_color = gray(0.0);
	}
}
`,
	filter.ShaderNormalFromHeight: header + `
float h(ivec2 p, int dx, int dy) { return fetch0(p + ivec2(dx, dy)).r; }

void main() {
	ivec2 p = px();
	float scale = u_resolution > 0.0 ? u_resolution / 8.0 : float(textureSize(u_input0, 0).x) / 8.0;
	float gx = (h(p, 1, -1) + 2.0 * h(p, 1, 0) + h(p, 1, 1)) - (h(p, -1, -1) + 2.0 * h(p, -1, 0) + h(p, -1, 1));
	float gy = (h(p, -1, 1) + 2.0 * h(p, 0, 1) + h(p, 1, 1)) - (h(p, -1, -1) + 2.0 * h(p, 0, -1) + h(p, 1, -1));
	vec3 n = normalize(vec3(-gx * scale, -gy * scale, 1.0));
	frag_color = vec4(n * 0.5 + 0.5, 1.0);
}
`,
	filter.ShaderNormalToFlow: header + `
void main() {
	vec2 f = texelFetch(u_input0, px(), 0).rg * 2.0 - 1.0;
	frag_color = vec4(clamp(f * 0.5 + 0.5, 0.0, 1.0), 0.0, 1.0);
}
`,
	filter.ShaderBlurHorizontal: header + blurBody("ivec2(k, 0)"),
	filter.ShaderBlurVertical:   header + blurBody("ivec2(0, k)"),
	filter.ShaderFoam: header + `
void main() {
	ivec2 p = px();
	float here = texelFetch(u_input0, p, 0).r;
	float up = fetch0(p - ivec2(0, int(round(u_offset)))).r;
	float cutoff = min(u_cutoff, 0.999);
	float v = up > here ? clamp((up - cutoff) / (1.0 - cutoff), 0.0, 1.0) : 0.0;
	frag_color = gray(v);
}
`,
	filter.ShaderFlowPressure: header + `
void main() {
	ivec2 p = px();
	int w = textureSize(u_input0, 0).x;
	int cells = max(u_row_count, 1);
	float cw = float(w) / float(cells);
	int c = int(floor(float(p.x) / cw));
	if (p.x < int(round(float(c) * cw))) c--;
	if (p.x >= int(round(float(c + 1) * cw))) c++;
	int x0 = int(round(float(c) * cw));
	int x1 = min(int(round(float(c + 1) * cw)), w);
	int occluded = 0;
	for (int x = x0; x < x1; x++) {
		if (texelFetch(u_input0, ivec2(x, p.y), 0).r > 0.5) occluded++;
	}
	frag_color = gray(float(occluded) / float(max(x1 - x0, 1)));
}
`,
	filter.ShaderCombine: header + `
void main() {
	ivec2 p = px();
	vec4 c = vec4(0.0, 0.0, 0.0, 1.0);
	if (u_has0 != 0) c.r = texelFetch(u_input0, p, 0).r;
	if (u_has1 != 0) c.g = texelFetch(u_input1, p, 0).g;
	if (u_has2 != 0) c.b = texelFetch(u_input2, p, 0).b;
	if (u_has3 != 0) c.a = texelFetch(u_input3, p, 0).a;
	frag_color = c;
}
`,
	filter.ShaderTiling: header + `
void main() {
	vec2 uv = (gl_FragCoord.xy) / vec2(u_size) * float(max(u_tiles, 1));
	frag_color = texture(u_input0, uv);
}
`,
}

// blurBody is a Gaussian reaching u_radius pixels with sigma = radius/3,
// along the given per-tap offset.
func blurBody(offset string) string {
	return `
void main() {
	ivec2 p = px();
	int half_size = int(ceil(u_radius));
	if (u_radius <= 0.0 || half_size < 1) {
		frag_color = texelFetch(u_input0, p, 0);
		return;
	}
	float sigma = u_radius / 3.0;
	float two_sigma_sq = 2.0 * sigma * sigma;
	vec4 acc = vec4(0.0);
	float sum = 0.0;
	for (int k = -half_size; k <= half_size; k++) {
		float wgt = exp(-float(k * k) / two_sigma_sq);
		acc += fetch0(p + ` + offset + `) * wgt;
		sum += wgt;
	}
	frag_color = acc / sum;
}
`
}
