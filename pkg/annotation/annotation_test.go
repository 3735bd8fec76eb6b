package annotation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestList_SerializeDeserializeRoundTrip(t *testing.T) {
	t.Run("onset and duration", func(t *testing.T) {
		list, err := New(3.5, 1.25, []string{"Sleep stage W"})
		require.NoError(t, err)

		wire := list.Serialize()
		got, err := Deserialize([]byte(wire))
		require.NoError(t, err)
		require.Equal(t, 3.5, got.Onset)
		require.Equal(t, 1.25, got.Duration)
		require.Equal(t, []string{"Sleep stage W"}, got.Annotations)
	})

	t.Run("time-keeping TAL with no duration", func(t *testing.T) {
		list := NewTimeKeeping(600.0)

		wire := list.Serialize()
		got, err := Deserialize([]byte(wire))
		require.NoError(t, err)
		require.Equal(t, 600.0, got.Onset)
		require.Equal(t, 0.0, got.Duration)
		require.True(t, got.IsTimeKeeping())
	})

	t.Run("time-keeping TAL with recording-start reason", func(t *testing.T) {
		list := NewTimeKeepingWithReason(0, "Recording starts")

		wire := list.Serialize()
		got, err := Deserialize([]byte(wire))
		require.NoError(t, err)
		require.True(t, got.IsTimeKeeping())
		require.Equal(t, "Recording starts", *got.TimeKeepingReason())
	})

	t.Run("negative onset", func(t *testing.T) {
		list, err := New(-12.3, 0, []string{"pre-trigger marker"})
		require.NoError(t, err)

		wire := list.Serialize()
		got, err := Deserialize([]byte(wire))
		require.NoError(t, err)
		require.Equal(t, -12.3, got.Onset)
	})

	t.Run("multiple annotation strings in one TAL", func(t *testing.T) {
		list, err := New(1.0, 0, []string{"Arousal", "EEG artifact"})
		require.NoError(t, err)

		wire := list.Serialize()
		got, err := Deserialize([]byte(wire))
		require.NoError(t, err)
		require.Equal(t, []string{"Arousal", "EEG artifact"}, got.Annotations)
	})
}

func TestDeserialize_RejectsMissingTerminator(t *testing.T) {
	_, err := Deserialize([]byte("+1.0\x14Sleep stage W\x14"))
	require.Error(t, err)
}

func TestDeserialize_RejectsUnparsableOnset(t *testing.T) {
	_, err := Deserialize([]byte("+abc\x14Sleep stage W\x14\x00"))
	require.Error(t, err)
}

func TestNew_RejectsIllegalControlCharacters(t *testing.T) {
	_, err := New(0, 0, []string{"bad\x01annotation"})
	require.Error(t, err)
}

func TestList_InsertAndRemoveAnnotation(t *testing.T) {
	list, err := New(0, 0, []string{"a", "c"})
	require.NoError(t, err)

	require.NoError(t, list.InsertAnnotation(1, "b"))
	require.Equal(t, []string{"a", "b", "c"}, list.Annotations)

	list.RemoveAnnotation(1)
	require.Equal(t, []string{"a", "c"}, list.Annotations)
}

func TestList_AddAnnotationAppends(t *testing.T) {
	list, err := New(0, 0, []string{"a"})
	require.NoError(t, err)

	require.NoError(t, list.AddAnnotation("b"))
	require.Equal(t, []string{"a", "b"}, list.Annotations)
}

func TestList_IsTimeKeeping(t *testing.T) {
	require.True(t, NewTimeKeeping(1.0).IsTimeKeeping())

	plain, err := New(1.0, 0, []string{"not time-keeping"})
	require.NoError(t, err)
	require.False(t, plain.IsTimeKeeping())
}
