package ring

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantCap  int
	}{
		{"positive capacity", 5, 5},
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.capacity)
			assert.Equal(t, tt.wantCap, r.Cap())
			assert.Equal(t, 0, r.Len())
			assert.Empty(t, r.Lines())
		})
	}
}

func TestPushBelowCapacity(t *testing.T) {
	r := New(4)
	r.Push("a")
	r.Push("b")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"a", "b"}, r.Lines())
}

func TestPushWrapsAndKeepsLastCapacityLines(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 7} {
		for _, extra := range []int{0, 1, 5, 13} {
			t.Run(fmt.Sprintf("cap=%d extra=%d", capacity, extra), func(t *testing.T) {
				r := New(capacity)
				total := capacity + extra
				for i := 0; i < total; i++ {
					r.Push(fmt.Sprintf("line-%d", i))
				}

				want := make([]string, 0, capacity)
				for i := total - capacity; i < total; i++ {
					want = append(want, fmt.Sprintf("line-%d", i))
				}

				assert.Equal(t, capacity, r.Len())
				assert.Equal(t, want, r.Lines())
			})
		}
	}
}

func TestClear(t *testing.T) {
	r := New(3)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	r.Push("d")

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, r.Cap())
	assert.Empty(t, r.Lines())
	assert.False(t, r.TailMatches("d"))

	r.Push("e")
	assert.Equal(t, []string{"e"}, r.Lines())
}

func TestTailMatches(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		pattern string
		want    bool
	}{
		{"empty buffer", nil, "x", false},
		{"empty pattern", []string{"a"}, "", true},
		{"exact last line", []string{"foo", "MARK"}, "MARK", true},
		{"suffix of last line", []string{"SQL> MARK"}, "MARK", true},
		{"prefix only does not match", []string{"MARK extra"}, "MARK", false},
		{"spans two lines", []string{"abc", "def"}, "c\ndef", true},
		{"spans three lines", []string{"x", "ab", "", "cd"}, "ab\n\ncd", true},
		{"wrong separator position", []string{"abc", "def"}, "cd\nef", false},
		{"pattern longer than history", []string{"ab"}, "xab", false},
		{"older line does not match", []string{"MARK", "later"}, "MARK", false},
		{"trailing empty line", []string{"MARK", ""}, "MARK\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(8)
			for _, l := range tt.lines {
				r.Push(l)
			}
			assert.Equal(t, tt.want, r.TailMatches(tt.pattern))
		})
	}
}

func TestTailMatchesAfterWrap(t *testing.T) {
	r := New(3)
	for _, l := range []string{"one", "two", "three", "four", "five"} {
		r.Push(l)
	}

	assert.True(t, r.TailMatches("four\nfive"))
	assert.True(t, r.TailMatches("three\nfour\nfive"))
	// "two" fell out of the window.
	assert.False(t, r.TailMatches("two\nthree\nfour\nfive"))
}

func TestTailMatchesLastLineSuffixAlwaysSucceeds(t *testing.T) {
	r := New(5)
	for i := 0; i < 50; i++ {
		line := strings.Repeat(string(rune('a'+i%26)), i%7+1) + fmt.Sprint(i)
		r.Push(line)
		for k := 0; k <= len(line); k++ {
			require.True(t, r.TailMatches(line[k:]), "suffix %q of %q", line[k:], line)
		}
	}
}

func TestConcurrentPushAndMatch(t *testing.T) {
	r := New(16)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.Push(fmt.Sprintf("l%d", i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = r.TailMatches("l1")
			_ = r.Lines()
		}
	}()
	wg.Wait()

	assert.Equal(t, 16, r.Len())
	assert.True(t, r.TailMatches("l499"))
}

func BenchmarkTailMatches(b *testing.B) {
	r := New(256)
	for i := 0; i < 10000; i++ {
		r.Push(fmt.Sprintf("row %d with some padding text", i))
	}
	r.Push("vorax-eoc-marker")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.TailMatches("vorax-eoc-marker")
	}
}
