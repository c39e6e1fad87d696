package bencode

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"testing"

	jbencode "github.com/jackpal/bencode-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Render(t *testing.T) {
	testCases := []struct {
		in  string
		exp string
	}{
		{in: "5:hello", exp: `"hello"`},
		{in: "i42e", exp: "42"},
		{in: "i-52e", exp: "-52"},
		{in: "l5:helloi42ee", exp: `["hello",42]`},
		{in: "d3:foo3:bar5:helloi52ee", exp: `{"foo":"bar","hello":52}`},
		{in: "de", exp: "{}"},
		{in: "le", exp: "[]"},
		{in: "0:", exp: `""`},
		{in: "d5:helloi52e3:foo3:bare", exp: `{"foo":"bar","hello":52}`},
		{in: "lli1eeli2ed1:ale1:bleeee", exp: `[[1],[2,{"a":[],"b":[]}]]`},
		{in: "2:\xff\xfe", exp: "\"\uFFFD\""},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			v, err := DecodeString(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, Render(v))
		})
	}
}

func Test_DecodeIntegers(t *testing.T) {
	testCases := []struct {
		in  string
		exp int64
	}{
		{in: "i0e", exp: 0},
		{in: "i7e", exp: 7},
		{in: "i-1e", exp: -1},
		{in: "i1024e", exp: 1024},
		{in: "i9223372036854775807e", exp: math.MaxInt64},
		{in: "i-9223372036854775808e", exp: math.MinInt64},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			v, err := DecodeString(tc.in)
			require.NoError(t, err)
			assert.Equal(t, Int(tc.exp), v)
		})
	}
}

func Test_DecodeErrors(t *testing.T) {
	testCases := []struct {
		in     string
		offset int
	}{
		{in: "", offset: 0},
		{in: "x", offset: 0},
		{in: "i-0e", offset: 1},
		{in: "i03e", offset: 1},
		{in: "i-03e", offset: 2},
		{in: "ie", offset: 1},
		{in: "i-e", offset: 2},
		{in: "i12", offset: 3},
		{in: "i1x2e", offset: 2},
		{in: "i9223372036854775808e", offset: 20},
		{in: "i-9223372036854775809e", offset: 21},
		{in: "5:abc", offset: 2},
		{in: "03:abc", offset: 0},
		{in: "3x:abc", offset: 1},
		{in: "l5:hello", offset: 8},
		{in: "di1ei2ee", offset: 1},
		{in: "d1:ai1e1:ai2ee", offset: 7},
		{in: "d1:ae", offset: 4},
		{in: "i1ei2e", offset: 3},
	}
	for i, tc := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			v, err := DecodeString(tc.in)
			assert.Nil(t, v)
			var perr *ParseError
			if assert.True(t, errors.As(err, &perr), "want ParseError, got %v", err) {
				assert.Equal(t, tc.offset, perr.Offset, perr.Error())
			}
		})
	}
}

func Test_DecodeDepth(t *testing.T) {
	deep := bytes.Repeat([]byte("l"), maxDepth+1)
	deep = append(deep, bytes.Repeat([]byte("e"), maxDepth+1)...)
	_, err := Decode(deep)
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))

	ok := bytes.Repeat([]byte("l"), maxDepth)
	ok = append(ok, bytes.Repeat([]byte("e"), maxDepth)...)
	_, err = Decode(ok)
	assert.NoError(t, err)
}

func Test_RoundTrip(t *testing.T) {
	inputs := []string{
		"5:hello",
		"i-42e",
		"le",
		"de",
		"l5:helloi42ee",
		"d3:zzzi1e3:aaal1:x1:yee",
		"d4:infod6:lengthi92063e4:name10:sample.txt12:piece lengthi32768e6:pieces0:ee",
		"d1:bd1:di1e1:cl0:ee1:ai0ee",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first, err := DecodeString(in)
			require.NoError(t, err)
			enc, err := Encode(first)
			require.NoError(t, err)
			second, err := Decode(enc)
			require.NoError(t, err)
			again, err := Encode(second)
			require.NoError(t, err)
			assert.Equal(t, enc, again)
			assert.Equal(t, Render(first), Render(second))
		})
	}
}

func Test_EncodeSortsKeys(t *testing.T) {
	v, err := DecodeString("d3:zzzi1e3:aaai2e2:mm0:e")
	require.NoError(t, err)
	enc, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, "d3:aaai2e2:mm0:3:zzzi1ee", string(enc))

	d := NewDict(
		Entry{Key: "b", Value: Int(2)},
		Entry{Key: "a", Value: List{Bytes("x")}},
		Entry{Key: "b", Value: Int(3)},
	)
	enc, err = Encode(d)
	require.NoError(t, err)
	assert.Equal(t, "d1:al1:xe1:bi3ee", string(enc))
	assert.Nil(t, d.Raw())
}

func Test_EncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrNilValue)

	_, err = Encode(List{Int(1), nil})
	assert.ErrorIs(t, err, ErrNilValue)
}

func Test_DictRawKeepsSourceLayout(t *testing.T) {
	in := "d8:announce3:url4:infod4:name1:x6:lengthi3eee"
	v, err := DecodeString(in)
	require.NoError(t, err)
	top := v.(*Dict)
	assert.Equal(t, in, string(top.Raw()))

	infoV, ok := top.Get("info")
	require.True(t, ok)
	info := infoV.(*Dict)
	assert.Equal(t, "d4:name1:x6:lengthi3ee", string(info.Raw()))

	keys := []string{}
	for _, e := range info.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"name", "length"}, keys)

	canonical, err := Encode(info)
	require.NoError(t, err)
	assert.Equal(t, "d6:lengthi3e4:name1:xe", string(canonical))
}

func Test_DecodeDoesNotAliasInput(t *testing.T) {
	in := []byte("d1:a3:xyze")
	v, err := Decode(in)
	require.NoError(t, err)
	in[6] = 'Q'
	d := v.(*Dict)
	a, _ := d.Get("a")
	assert.Equal(t, Bytes("xyz"), a)
	assert.Equal(t, "d1:a3:xyze", string(d.Raw()))
}

func Test_CrossCheckWithJackpal(t *testing.T) {
	src := map[string]interface{}{
		"announce": "http://tracker.example/announce",
		"info": map[string]interface{}{
			"length":       int64(92063),
			"name":         "sample.txt",
			"piece length": int64(32768),
			"pieces":       string(bytes.Repeat([]byte{0xab}, 60)),
		},
		"list": []interface{}{int64(-1), "two", []interface{}{"x"}},
	}
	var buf bytes.Buffer
	require.NoError(t, jbencode.Marshal(&buf, src))

	v, err := Decode(buf.Bytes())
	require.NoError(t, err)
	ours, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), ours)

	back, err := jbencode.Decode(bytes.NewReader(ours))
	require.NoError(t, err)
	assert.Equal(t, src, back)
}
