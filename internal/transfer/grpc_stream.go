package transfer

import (
	"io"

	"github.com/jaywantadh/gwbench/internal/chunker"
	pb "github.com/jaywantadh/gwbench/proto"
)

// chunkReceiver is satisfied by both the server side of UploadFile and the
// client side of DownloadFile.
type chunkReceiver interface {
	Recv() (*pb.FileChunk, error)
}

// messageStream adapts a stream of FileChunk messages to chunker.Stream. The
// first message is received up front by the caller and replayed here; every
// chunk is tagged with filename regardless of what later messages carry.
type messageStream struct {
	recv     chunkReceiver
	first    *pb.FileChunk
	filename string
	eof      bool
}

func (m *messageStream) Next() (chunker.Chunk, error) {
	if m.eof {
		return chunker.Chunk{}, io.EOF
	}

	msg := m.first
	m.first = nil
	if msg == nil {
		var err error
		msg, err = m.recv.Recv()
		if err == io.EOF {
			m.eof = true
		}
		if err != nil {
			return chunker.Chunk{}, err
		}
	}

	return chunker.Chunk{
		Filename:  m.filename,
		Data:      msg.GetData(),
		TotalSize: msg.GetTotalSize(),
	}, nil
}
