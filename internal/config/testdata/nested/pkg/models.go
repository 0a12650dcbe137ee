package pkg

type Model struct{}
