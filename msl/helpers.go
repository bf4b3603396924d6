package msl

// helperBlock is the fixed set of free functions every emitted shader
// carries (spec.md §4.D.3): safe scalar/vector division and modulo,
// comparison ops lowered to explicit 0/1 float masks, NaN/Inf/finite
// predicates, IEEE-754 frexp-derived exponent/mantissa, a saturating
// safe_cast_int, a 4x4 determinant-based inverse, quaternion
// mul/rotate/slerp plus quat_to_mat4, and an alpha-over color_mix_impl.
// Emitted once, verbatim, regardless of which ops a given document
// actually reaches — the cost of a handful of unused free functions in
// one compilation unit is cheaper than conditioning every emission
// path on reachability.
const helperBlock = `
inline float safe_div(float a, float b) {
    return b != 0.0 ? a / b : 0.0;
}
inline float2 safe_div(float2 a, float2 b) {
    return float2(safe_div(a.x, b.x), safe_div(a.y, b.y));
}
inline float3 safe_div(float3 a, float3 b) {
    return float3(safe_div(a.x, b.x), safe_div(a.y, b.y), safe_div(a.z, b.z));
}
inline float4 safe_div(float4 a, float4 b) {
    return float4(safe_div(a.x, b.x), safe_div(a.y, b.y), safe_div(a.z, b.z), safe_div(a.w, b.w));
}
inline int safe_div(int a, int b) {
    return b != 0 ? a / b : 0;
}
inline float safe_mod(float a, float b) {
    return b != 0.0 ? fmod(a, b) : 0.0;
}
inline int safe_mod(int a, int b) {
    return b != 0 ? a % b : 0;
}

inline float cmp_gt(float a, float b) { return a > b ? 1.0 : 0.0; }
inline float cmp_lt(float a, float b) { return a < b ? 1.0 : 0.0; }
inline float cmp_ge(float a, float b) { return a >= b ? 1.0 : 0.0; }
inline float cmp_le(float a, float b) { return a <= b ? 1.0 : 0.0; }
inline float cmp_eq(float a, float b) { return a == b ? 1.0 : 0.0; }
inline float cmp_neq(float a, float b) { return a != b ? 1.0 : 0.0; }
inline float2 cmp_gt(float2 a, float2 b) { return float2(cmp_gt(a.x,b.x), cmp_gt(a.y,b.y)); }
inline float2 cmp_lt(float2 a, float2 b) { return float2(cmp_lt(a.x,b.x), cmp_lt(a.y,b.y)); }
inline float2 cmp_ge(float2 a, float2 b) { return float2(cmp_ge(a.x,b.x), cmp_ge(a.y,b.y)); }
inline float2 cmp_le(float2 a, float2 b) { return float2(cmp_le(a.x,b.x), cmp_le(a.y,b.y)); }
inline float2 cmp_eq(float2 a, float2 b) { return float2(cmp_eq(a.x,b.x), cmp_eq(a.y,b.y)); }
inline float2 cmp_neq(float2 a, float2 b) { return float2(cmp_neq(a.x,b.x), cmp_neq(a.y,b.y)); }
inline float3 cmp_gt(float3 a, float3 b) { return float3(cmp_gt(a.x,b.x), cmp_gt(a.y,b.y), cmp_gt(a.z,b.z)); }
inline float3 cmp_lt(float3 a, float3 b) { return float3(cmp_lt(a.x,b.x), cmp_lt(a.y,b.y), cmp_lt(a.z,b.z)); }
inline float3 cmp_ge(float3 a, float3 b) { return float3(cmp_ge(a.x,b.x), cmp_ge(a.y,b.y), cmp_ge(a.z,b.z)); }
inline float3 cmp_le(float3 a, float3 b) { return float3(cmp_le(a.x,b.x), cmp_le(a.y,b.y), cmp_le(a.z,b.z)); }
inline float3 cmp_eq(float3 a, float3 b) { return float3(cmp_eq(a.x,b.x), cmp_eq(a.y,b.y), cmp_eq(a.z,b.z)); }
inline float3 cmp_neq(float3 a, float3 b) { return float3(cmp_neq(a.x,b.x), cmp_neq(a.y,b.y), cmp_neq(a.z,b.z)); }
inline float4 cmp_gt(float4 a, float4 b) { return float4(cmp_gt(a.x,b.x), cmp_gt(a.y,b.y), cmp_gt(a.z,b.z), cmp_gt(a.w,b.w)); }
inline float4 cmp_lt(float4 a, float4 b) { return float4(cmp_lt(a.x,b.x), cmp_lt(a.y,b.y), cmp_lt(a.z,b.z), cmp_lt(a.w,b.w)); }
inline float4 cmp_ge(float4 a, float4 b) { return float4(cmp_ge(a.x,b.x), cmp_ge(a.y,b.y), cmp_ge(a.z,b.z), cmp_ge(a.w,b.w)); }
inline float4 cmp_le(float4 a, float4 b) { return float4(cmp_le(a.x,b.x), cmp_le(a.y,b.y), cmp_le(a.z,b.z), cmp_le(a.w,b.w)); }
inline float4 cmp_eq(float4 a, float4 b) { return float4(cmp_eq(a.x,b.x), cmp_eq(a.y,b.y), cmp_eq(a.z,b.z), cmp_eq(a.w,b.w)); }
inline float4 cmp_neq(float4 a, float4 b) { return float4(cmp_neq(a.x,b.x), cmp_neq(a.y,b.y), cmp_neq(a.z,b.z), cmp_neq(a.w,b.w)); }

inline bool is_nan_f(float x) { return x != x; }
inline bool is_inf_f(float x) { return isinf(x); }
inline bool is_finite_f(float x) { return !is_nan_f(x) && !is_inf_f(x); }

inline float frexp_exponent(float x) {
    int e = 0;
    frexp(x, e);
    return float(e);
}
inline float frexp_mantissa(float x) {
    int e = 0;
    return frexp(x, e);
}

// safe_cast_int saturates then wraps two's-complement at +/-2^31
// instead of relying on Metal's implementation-defined float->int
// overflow behavior.
inline int safe_cast_int(float x) {
    if (is_nan_f(x)) return 0;
    double d = double(x);
    d = fmod(d, 4294967296.0);
    if (d < -2147483648.0) d += 4294967296.0;
    if (d >= 2147483648.0) d -= 4294967296.0;
    return int(d);
}
inline int2 safe_cast_int(float2 x) { return int2(safe_cast_int(x.x), safe_cast_int(x.y)); }
inline int3 safe_cast_int(float3 x) { return int3(safe_cast_int(x.x), safe_cast_int(x.y), safe_cast_int(x.z)); }
inline int4 safe_cast_int(float4 x) { return int4(safe_cast_int(x.x), safe_cast_int(x.y), safe_cast_int(x.z), safe_cast_int(x.w)); }

inline float4x4 mat_inverse_impl(float4x4 m) {
    float a00=m[0][0],a01=m[0][1],a02=m[0][2],a03=m[0][3];
    float a10=m[1][0],a11=m[1][1],a12=m[1][2],a13=m[1][3];
    float a20=m[2][0],a21=m[2][1],a22=m[2][2],a23=m[2][3];
    float a30=m[3][0],a31=m[3][1],a32=m[3][2],a33=m[3][3];

    float b00 = a00*a11 - a01*a10;
    float b01 = a00*a12 - a02*a10;
    float b02 = a00*a13 - a03*a10;
    float b03 = a01*a12 - a02*a11;
    float b04 = a01*a13 - a03*a11;
    float b05 = a02*a13 - a03*a12;
    float b06 = a20*a31 - a21*a30;
    float b07 = a20*a32 - a22*a30;
    float b08 = a20*a33 - a23*a30;
    float b09 = a21*a32 - a22*a31;
    float b10 = a21*a33 - a23*a31;
    float b11 = a22*a33 - a23*a32;

    float det = b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06;
    float invDet = safe_div(1.0, det);

    return float4x4(
        float4((a11*b11 - a12*b10 + a13*b09) * invDet,
               (a02*b10 - a01*b11 - a03*b09) * invDet,
               (a31*b05 - a32*b04 + a33*b03) * invDet,
               (a22*b04 - a21*b05 - a23*b03) * invDet),
        float4((a12*b08 - a10*b11 - a13*b07) * invDet,
               (a00*b11 - a02*b08 + a03*b07) * invDet,
               (a32*b02 - a30*b05 - a33*b01) * invDet,
               (a20*b05 - a22*b02 + a23*b01) * invDet),
        float4((a10*b10 - a11*b08 + a13*b06) * invDet,
               (a01*b08 - a00*b10 - a03*b06) * invDet,
               (a30*b04 - a31*b02 + a33*b00) * invDet,
               (a21*b02 - a20*b04 - a23*b00) * invDet),
        float4((a11*b07 - a10*b09 - a12*b06) * invDet,
               (a00*b09 - a01*b07 + a02*b06) * invDet,
               (a31*b01 - a30*b03 - a32*b00) * invDet,
               (a20*b03 - a21*b01 + a22*b00) * invDet)
    );
}

inline float3x3 mat3_inverse_impl(float3x3 m) {
    float a=m[0][0], b=m[0][1], c=m[0][2];
    float d=m[1][0], e=m[1][1], f=m[1][2];
    float g=m[2][0], h=m[2][1], i=m[2][2];

    float A =  (e*i - f*h);
    float B = -(d*i - f*g);
    float C =  (d*h - e*g);
    float det = a*A + b*B + c*C;
    float invDet = safe_div(1.0, det);

    return float3x3(
        float3(A, -(b*i - c*h), (b*f - c*e)) * invDet,
        float3(B, (a*i - c*g), -(a*f - c*d)) * invDet,
        float3(C, -(a*h - b*g), (a*e - b*d)) * invDet
    );
}

inline float4 quat_mul_impl(float4 a, float4 b) {
    return float4(
        a.w*b.x + a.x*b.w + a.y*b.z - a.z*b.y,
        a.w*b.y - a.x*b.z + a.y*b.w + a.z*b.x,
        a.w*b.z + a.x*b.y - a.y*b.x + a.z*b.w,
        a.w*b.w - a.x*b.x - a.y*b.y - a.z*b.z
    );
}
inline float3 quat_rotate_impl(float4 q, float3 v) {
    float3 u = q.xyz;
    float s = q.w;
    return 2.0 * dot(u, v) * u + (s*s - dot(u, u)) * v + 2.0 * s * cross(u, v);
}
inline float4 quat_slerp_impl(float4 a, float4 b, float t) {
    float cosTheta = dot(a, b);
    float4 bb = b;
    if (cosTheta < 0.0) {
        bb = -b;
        cosTheta = -cosTheta;
    }
    if (cosTheta > 0.9995) {
        return normalize(a + t * (bb - a));
    }
    float theta = acos(clamp(cosTheta, -1.0, 1.0));
    float sinTheta = sin(theta);
    float wa = sin((1.0 - t) * theta) / sinTheta;
    float wb = sin(t * theta) / sinTheta;
    return wa * a + wb * bb;
}
inline float4x4 quat_to_mat4_impl(float4 q) {
    float x=q.x, y=q.y, z=q.z, w=q.w;
    float x2=x+x, y2=y+y, z2=z+z;
    float xx=x*x2, xy=x*y2, xz=x*z2;
    float yy=y*y2, yz=y*z2, zz=z*z2;
    float wx=w*x2, wy=w*y2, wz=w*z2;
    return float4x4(
        float4(1.0-(yy+zz), xy+wz, xz-wy, 0.0),
        float4(xy-wz, 1.0-(xx+zz), yz+wx, 0.0),
        float4(xz+wy, yz-wx, 1.0-(xx+yy), 0.0),
        float4(0.0, 0.0, 0.0, 1.0)
    );
}

inline float4 color_mix_impl(float4 base, float4 over) {
    float outA = over.a + base.a * (1.0 - over.a);
    if (outA <= 0.0) return float4(0.0);
    float3 outRGB = (over.rgb * over.a + base.rgb * base.a * (1.0 - over.a)) / outA;
    return float4(outRGB, outA);
}
`

// writeHelperFunctions emits the fixed helper block verbatim.
func (w *Writer) writeHelperFunctions() {
	w.out.WriteString(helperBlock)
	w.writeLine("")
}
